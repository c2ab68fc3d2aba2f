package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/zk-passport/tee-prover-server/cryptocore"
	"github.com/zk-passport/tee-prover-server/internal/config"
	"github.com/zk-passport/tee-prover-server/internal/logger"
	"github.com/zk-passport/tee-prover-server/internal/metrics"
	"github.com/zk-passport/tee-prover-server/internal/rpcerr"
	"github.com/zk-passport/tee-prover-server/model"
	"github.com/zk-passport/tee-prover-server/notify"
	"github.com/zk-passport/tee-prover-server/store/postgres"
)

// Orchestrator drives the three bounded queues connecting the proof stages.
// Each consumer is a long-lived goroutine; each dequeued job is handled by
// a freshly spawned per-request goroutine so a slow subprocess never
// starves the queue head.
type Orchestrator struct {
	cfg      *config.Config
	gateway  *postgres.Gateway
	signer   *cryptocore.Signer
	notifier *notify.Hub

	fileQ    chan FileJob
	witnessQ chan WitnessJob
	proofQ   chan ProofJob

	fileStage    FileStage
	witnessStage WitnessStage
	proofStage   ProofStage
}

// New constructs an Orchestrator with bounded queues of the configured
// capacity. notifier may be nil (status notifications are best-effort).
func New(cfg *config.Config, gateway *postgres.Gateway, signer *cryptocore.Signer, notifier *notify.Hub) *Orchestrator {
	capacity := cfg.QueueCapacity
	if capacity <= 0 {
		capacity = 10
	}
	return &Orchestrator{
		cfg:          cfg,
		gateway:      gateway,
		signer:       signer,
		notifier:     notifier,
		fileQ:        make(chan FileJob, capacity),
		witnessQ:     make(chan WitnessJob, capacity),
		proofQ:       make(chan ProofJob, capacity),
		witnessStage: WitnessStage{Config: cfg},
		proofStage:   ProofStage{Config: cfg},
	}
}

// Start launches the three consumer goroutines. It returns immediately;
// consumers run until ctx is canceled, at which point in-flight per-request
// tasks are allowed to drain to their next suspension point and are then
// dropped; graceful drain is not required.
func (o *Orchestrator) Start(ctx context.Context) {
	go o.consumeFile(ctx)
	go o.consumeWitness(ctx)
	go o.consumeProof(ctx)
}

// Submit accepts a newly validated request: persists the Pending row and
// enqueues the first stage job. While Q_file is full the send blocks
// (backpressure on the caller); rpcerr.KindInternal is returned if ctx is
// canceled before the job is enqueued.
func (o *Orchestrator) Submit(ctx context.Context, id string, req model.ProofRequest) error {
	var endpointType *model.EndpointType
	var endpoint *string
	if req.Type == model.ProofTypeDisclose {
		endpointType = &req.EndpointType
		endpoint = &req.Endpoint
	}

	if err := o.gateway.Create(ctx, id, req.Type, req.Circuit.Name, req.OnChain, endpointType, endpoint); err != nil {
		return err
	}
	metrics.RequestsInFlight.Inc()

	select {
	case o.fileQ <- FileJob{ID: id, Request: req}:
		metrics.QueueDepth.WithLabelValues("file").Set(float64(len(o.fileQ)))
		return nil
	case <-ctx.Done():
		return rpcerr.Wrap(rpcerr.KindInternal, "enqueue to file queue canceled", ctx.Err())
	}
}

func (o *Orchestrator) consumeFile(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-o.fileQ:
			metrics.QueueDepth.WithLabelValues("file").Set(float64(len(o.fileQ)))
			go o.handleFile(ctx, job)
		}
	}
}

func (o *Orchestrator) consumeWitness(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-o.witnessQ:
			metrics.QueueDepth.WithLabelValues("witness").Set(float64(len(o.witnessQ)))
			go o.handleWitness(ctx, job)
		}
	}
}

func (o *Orchestrator) consumeProof(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-o.proofQ:
			metrics.QueueDepth.WithLabelValues("proof").Set(float64(len(o.proofQ)))
			go o.handleProof(ctx, job)
		}
	}
}

func (o *Orchestrator) handleFile(ctx context.Context, job FileJob) {
	start := time.Now()
	witnessJob, err := o.fileStage.Run(job)
	metrics.StageDuration.WithLabelValues("file").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.StageOutcomes.WithLabelValues("file", "fail").Inc()
		o.fail(ctx, job.ID, err)
		return
	}
	metrics.StageOutcomes.WithLabelValues("file", "success").Inc()

	select {
	case o.witnessQ <- witnessJob:
	case <-ctx.Done():
	}
}

func (o *Orchestrator) handleWitness(ctx context.Context, job WitnessJob) {
	start := time.Now()
	proofJob, err := o.witnessStage.Run(job)
	metrics.StageDuration.WithLabelValues("witness").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.StageOutcomes.WithLabelValues("witness", "fail").Inc()
		o.fail(ctx, job.ID, err)
		return
	}
	metrics.StageOutcomes.WithLabelValues("witness", "success").Inc()

	if err := o.gateway.MarkWitnessGenerated(ctx, job.ID); err != nil {
		o.fail(ctx, job.ID, err)
		return
	}
	o.notify(job.ID, model.StatusWitnessGenerated)

	select {
	case o.proofQ <- proofJob:
	case <-ctx.Done():
	}
}

func (o *Orchestrator) handleProof(ctx context.Context, job ProofJob) {
	start := time.Now()
	err := o.proofStage.Run(job)
	metrics.StageDuration.WithLabelValues("proof").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.StageOutcomes.WithLabelValues("proof", "fail").Inc()
		o.fail(ctx, job.ID, err)
		return
	}
	metrics.StageOutcomes.WithLabelValues("proof", "success").Inc()

	proof, publicInputs, err := readProofOutputs(job.ID)
	if err != nil {
		o.fail(ctx, job.ID, err)
		return
	}

	signature, err := o.signer.Sign(*proof)
	if err != nil {
		o.fail(ctx, job.ID, err)
		return
	}

	if err := o.gateway.UpdateWithProof(ctx, job.ID, *proof, publicInputs, signature); err != nil {
		o.fail(ctx, job.ID, err)
		return
	}

	o.cleanup(job.ID)
	metrics.RequestsInFlight.Dec()
	o.notify(job.ID, model.StatusProofGenerated)
}

// fail routes a stage failure to PersistenceGateway.Fail, then removes the
// working directory. Idempotent: both operations tolerate being called
// more than once for the same id, and a cleanup failure never overrides
// the preceding Failed persistence.
func (o *Orchestrator) fail(ctx context.Context, id string, cause error) {
	logger.Warn("proof request failed", logger.String("request_id", id), logger.Error(cause))

	if err := o.gateway.Fail(ctx, id, cause.Error()); err != nil {
		logger.ErrorMsg("failed to persist Failed status", logger.String("request_id", id), logger.Error(err))
	}
	o.cleanup(id)
	metrics.RequestsInFlight.Dec()
	o.notify(id, model.StatusFailed)
}

// cleanup removes the working directory, swallowing errors: a failure to
// remove the directory does not override the preceding Failed persistence.
func (o *Orchestrator) cleanup(id string) {
	if err := os.RemoveAll(workingDir(id)); err != nil {
		logger.Warn("failed to remove working directory", logger.String("request_id", id), logger.Error(err))
	}
}

func (o *Orchestrator) notify(id string, status model.Status) {
	if o.notifier == nil {
		return
	}
	o.notifier.Publish(id, status)
}

func readProofOutputs(id string) (*model.Proof, []string, error) {
	proofBytes, err := os.ReadFile(proofOutputPath(id))
	if err != nil {
		return nil, nil, rpcerr.Wrap(rpcerr.KindIoError, "failed to read proof.json", err)
	}
	var proof model.Proof
	if err := json.Unmarshal(proofBytes, &proof); err != nil {
		return nil, nil, rpcerr.Wrap(rpcerr.KindIoError, "failed to parse proof.json", err)
	}

	publicBytes, err := os.ReadFile(publicInputsPath(id))
	if err != nil {
		return nil, nil, rpcerr.Wrap(rpcerr.KindIoError, "failed to read public_inputs.json", err)
	}
	var publicInputs []string
	if err := json.Unmarshal(publicBytes, &publicInputs); err != nil {
		return nil, nil, rpcerr.Wrap(rpcerr.KindIoError, "failed to parse public_inputs.json", err)
	}

	return &proof, publicInputs, nil
}

package deploy

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultPoolSize is the worker pool size for parallel batch deployments.
const DefaultPoolSize = 3

// CustomerDeployer deploys one customer. Satisfied by Orchestrator.
type CustomerDeployer interface {
	DeployCustomer(ctx context.Context, customer, environment string, dryRun bool) *DeploymentResult
}

// BatchCoordinator fans a customer cohort out across a deployer, either
// sequentially or through a bounded worker pool.
//
// Under parallel execution results are collected in completion order, which
// is non-deterministic. Stopping on first failure cancels work that has not
// started; work already in flight completes and its result is still recorded.
// A live apply is never interrupted: partial infrastructure changes are
// reconciled by a later plan/apply, not rolled back.
type BatchCoordinator struct {
	deployer CustomerDeployer
	poolSize int
	metrics  MetricsRecorder
	logger   zerolog.Logger
}

// NewBatchCoordinator creates a batch coordinator. poolSize <= 0 selects
// DefaultPoolSize; metrics may be nil.
func NewBatchCoordinator(deployer CustomerDeployer, poolSize int, metrics MetricsRecorder, logger zerolog.Logger) *BatchCoordinator {
	if poolSize <= 0 {
		poolSize = DefaultPoolSize
	}
	return &BatchCoordinator{
		deployer: deployer,
		poolSize: poolSize,
		metrics:  metrics,
		logger:   logger.With().Str("component", "batch").Logger(),
	}
}

// DeployMany deploys every customer in the cohort to the same environment.
// With continueOnError false the batch stops on the first failure: remaining
// customers are listed as skipped and appear in neither result list. Worker
// panics are converted into synthetic failed results; callers never observe
// them directly.
func (c *BatchCoordinator) DeployMany(ctx context.Context, customers []string, environment string, parallel, continueOnError bool) *BatchResult {
	batch := &BatchResult{
		ID:          uuid.New().String(),
		Environment: environment,
		StartedAt:   time.Now().UTC(),
	}

	c.logger.Info().
		Strs("customers", customers).
		Str("environment", environment).
		Bool("parallel", parallel).
		Bool("continue_on_error", continueOnError).
		Msg("starting batch deployment")

	if parallel {
		c.deployParallel(ctx, customers, environment, continueOnError, batch)
	} else {
		c.deploySequential(ctx, customers, environment, continueOnError, batch)
	}

	batch.TotalCustomers = batch.AttemptedCount()
	batch.CompletedAt = time.Now().UTC()

	if c.metrics != nil {
		c.metrics.ObserveBatch(environment, batch.SuccessCount(), batch.FailureCount())
	}
	c.logger.Info().
		Int("succeeded", batch.SuccessCount()).
		Int("failed", batch.FailureCount()).
		Int("skipped", len(batch.Skipped)).
		Msg("batch deployment complete")

	return batch
}

func (c *BatchCoordinator) deploySequential(ctx context.Context, customers []string, environment string, continueOnError bool, batch *BatchResult) {
	for i, customer := range customers {
		result := c.attempt(ctx, customer, environment)
		if result.Success {
			batch.Successful = append(batch.Successful, result)
			continue
		}
		batch.Failed = append(batch.Failed, result)
		if !continueOnError {
			batch.Skipped = append(batch.Skipped, customers[i+1:]...)
			return
		}
	}
}

func (c *BatchCoordinator) deployParallel(ctx context.Context, customers []string, environment string, continueOnError bool, batch *BatchResult) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan string)
	results := make(chan *DeploymentResult)

	var mu sync.Mutex
	attempted := make(map[string]bool, len(customers))

	go func() {
		defer close(jobs)
		for _, customer := range customers {
			select {
			case jobs <- customer:
			case <-ctx.Done():
				return
			}
		}
	}()

	workers := c.poolSize
	if len(customers) < workers {
		workers = len(customers)
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case customer, ok := <-jobs:
					if !ok {
						return
					}
					mu.Lock()
					attempted[customer] = true
					mu.Unlock()
					results <- c.attempt(ctx, customer, environment)
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	// Drain every result the workers produce: cancellation stops new work
	// from starting but in-flight deployments still complete and report.
	for result := range results {
		if result.Success {
			batch.Successful = append(batch.Successful, result)
			continue
		}
		batch.Failed = append(batch.Failed, result)
		if !continueOnError {
			cancel()
		}
	}

	for _, customer := range customers {
		if !attempted[customer] {
			batch.Skipped = append(batch.Skipped, customer)
		}
	}
}

// attempt invokes the deployer, converting a panic into a synthetic failed
// result carrying the panic message as its sole error.
func (c *BatchCoordinator) attempt(ctx context.Context, customer, environment string) (result *DeploymentResult) {
	defer func() {
		if p := recover(); p != nil {
			now := time.Now().UTC()
			result = &DeploymentResult{
				ID:          uuid.New().String(),
				Customer:    customer,
				Environment: environment,
				Status:      StatusFailed,
				StartedAt:   now,
				CompletedAt: now,
			}
			result.Errors = []string{fmt.Sprint(p)}
		}
	}()
	return c.deployer.DeployCustomer(ctx, customer, environment, false)
}

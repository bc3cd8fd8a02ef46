// Package queue implements the Per-Account Work Queue (Q): a durable FIFO
// of user operations keyed by native address, with at most one job in
// flight per account. Serialization is enforced by binding each account to
// its own named queue with a dedicated, concurrency-1 worker — not merely
// by the ledger lock — so that user-facing ordering within an account is
// predictable.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/RichardKnop/machinery/v1"
	"github.com/RichardKnop/machinery/v1/config"
	mlog "github.com/RichardKnop/machinery/v1/log"
	"github.com/RichardKnop/machinery/v1/tasks"

	"github.com/bananocoin/wban-bridge/address"
	"github.com/bananocoin/wban-bridge/metrics"
)

// pendingWithdrawalRetryDelay is how long a pending-withdrawal successor
// waits before its next hot-wallet funding check.
const pendingWithdrawalRetryDelay = 30 * time.Second

// accountQueueName returns the machinery queue name an account's jobs are
// routed to, giving every native address its own FIFO.
func accountQueueName(nativeAddr string) string {
	return "account." + address.Native(nativeAddr)
}

// Handlers are the three job handlers of §4.4–§4.6, registered with the
// underlying machinery server. Withdrawal and SwapToWBAN return the
// transaction hash or receipt id produced; SwapToBAN returns only an error.
type Handlers struct {
	Withdrawal func(ctx context.Context, job WithdrawalJob) (string, error)
	SwapToWBAN func(ctx context.Context, job SwapToWBANJob) (string, error)
	SwapToBAN  func(ctx context.Context, job SwapToBANJob) error
}

// Queue is the Per-Account Work Queue.
type Queue struct {
	server  *machinery.Server
	metrics *metrics.Recorder

	mu                 sync.Mutex
	workers            map[string]chan struct{} // queue name -> stop channel
	pendingWithdrawals map[string]*big.Int       // native addr -> pending amount
}

// New connects to the Redis broker/result-backend at redisAddr and returns
// a Queue with no handlers registered yet; call RegisterHandlers before
// Enqueue-ing any job.
func New(redisAddr string, recorder *metrics.Recorder) (*Queue, error) {
	cnf := &config.Config{
		Broker:          fmt.Sprintf("redis://%s", redisAddr),
		DefaultQueue:    "banbridge_default",
		ResultBackend:   fmt.Sprintf("redis://%s", redisAddr),
		ResultsExpireIn: 3600,
	}

	server, err := machinery.NewServer(cnf)
	if err != nil {
		return nil, fmt.Errorf("queue: new machinery server: %w", err)
	}

	return &Queue{
		server:             server,
		metrics:            recorder,
		workers:            make(map[string]chan struct{}),
		pendingWithdrawals: make(map[string]*big.Int),
	}, nil
}

// RegisterHandlers wires the three operation handlers into the underlying
// task registry.
func (q *Queue) RegisterHandlers(h Handlers) error {
	tasksMap := map[string]interface{}{
		OpNativeWithdrawal: func(payload string) (string, error) {
			var job WithdrawalJob
			if err := json.Unmarshal([]byte(payload), &job); err != nil {
				return "", err
			}
			return h.Withdrawal(context.Background(), job)
		},
		OpSwapToWBAN: func(payload string) (string, error) {
			var job SwapToWBANJob
			if err := json.Unmarshal([]byte(payload), &job); err != nil {
				return "", err
			}
			return h.SwapToWBAN(context.Background(), job)
		},
		OpSwapToBAN: func(payload string) (string, error) {
			var job SwapToBANJob
			if err := json.Unmarshal([]byte(payload), &job); err != nil {
				return "", err
			}
			return "", h.SwapToBAN(context.Background(), job)
		},
	}
	return q.server.RegisterTasks(tasksMap)
}

// ensureWorker lazily launches the concurrency-1 worker bound to an
// account's queue, so at most one job for that account is processed at a
// time. It is idempotent: calling it twice for the same account is a
// no-op on the second call.
func (q *Queue) ensureWorker(queueName string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, running := q.workers[queueName]; running {
		return
	}

	stop := make(chan struct{})
	q.workers[queueName] = stop

	worker := q.server.NewCustomQueueWorker("banbridge-"+queueName, 1, queueName)
	go func() {
		if err := worker.Launch(); err != nil {
			mlog.ERROR.Printf("queue: worker for %s exited: %v", queueName, err)
			log.Errorf("worker for %s exited: %v", queueName, err)
		}
	}()
}

func (q *Queue) enqueue(nativeAddr, opName string, payload interface{}, eta *time.Time) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("queue: marshal payload: %w", err)
	}

	queueName := accountQueueName(nativeAddr)
	sig := &tasks.Signature{
		Name:       opName,
		RoutingKey: queueName,
		Args:       []tasks.Arg{{Type: "string", Value: string(body)}},
	}
	if eta != nil {
		sig.ETA = eta
	}

	q.ensureWorker(queueName)

	if _, err := q.server.SendTask(sig); err != nil {
		return fmt.Errorf("queue: send task %s for %s: %w", opName, nativeAddr, err)
	}
	return nil
}

// EnqueueWithdrawal enqueues a native-withdrawal job for nativeAddr.
func (q *Queue) EnqueueWithdrawal(job WithdrawalJob) error {
	return q.enqueue(job.NativeAddr, OpNativeWithdrawal, job, nil)
}

// EnqueueSwapToWBAN enqueues a swap-to-wban job for nativeAddr.
func (q *Queue) EnqueueSwapToWBAN(job SwapToWBANJob) error {
	return q.enqueue(job.NativeAddr, OpSwapToWBAN, job, nil)
}

// EnqueueSwapToBAN enqueues a swap-to-ban job, routed by native address
// since that is the account whose balance it mutates.
func (q *Queue) EnqueueSwapToBAN(job SwapToBANJob) error {
	return q.enqueue(job.NativeAddr, OpSwapToBAN, job, nil)
}

// EnqueuePendingWithdrawal re-enqueues a native-withdrawal job after the
// hot wallet was found underfunded, delaying it by
// pendingWithdrawalRetryDelay and incrementing its attempt counter. This
// successor replaces the predecessor in the sense that the predecessor
// handler should treat itself as done (superseded) once this call
// succeeds.
func (q *Queue) EnqueuePendingWithdrawal(job WithdrawalJob) error {
	job.Attempt++
	eta := time.Now().Add(pendingWithdrawalRetryDelay)

	q.mu.Lock()
	na := address.Native(job.NativeAddr)
	if existing, ok := q.pendingWithdrawals[na]; ok {
		existing.Add(existing, mustParseAmount(job.Amount))
	} else {
		q.pendingWithdrawals[na] = mustParseAmount(job.Amount)
	}
	total := q.sumPendingLocked()
	q.mu.Unlock()

	if q.metrics != nil {
		q.metrics.SetPendingWithdrawals(total)
	}

	return q.enqueue(job.NativeAddr, OpNativeWithdrawal, job, &eta)
}

// ResolvePendingWithdrawal clears the tracked pending amount for an
// account once its retry either sends successfully or permanently fails,
// keeping the exposed pending-withdrawals gauge accurate.
func (q *Queue) ResolvePendingWithdrawal(nativeAddr string) {
	q.mu.Lock()
	delete(q.pendingWithdrawals, address.Native(nativeAddr))
	total := q.sumPendingLocked()
	q.mu.Unlock()

	if q.metrics != nil {
		q.metrics.SetPendingWithdrawals(total)
	}
}

// PendingWithdrawalsTotal returns the summed amount of all pending
// withdrawals currently tracked, for operator dashboards and the
// mint-receipt ceiling.
func (q *Queue) PendingWithdrawalsTotal() *big.Int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.sumPendingLocked()
}

func (q *Queue) sumPendingLocked() *big.Int {
	total := big.NewInt(0)
	for _, amount := range q.pendingWithdrawals {
		total.Add(total, amount)
	}
	return total
}

func mustParseAmount(s string) *big.Int {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return big.NewInt(0)
	}
	return n
}

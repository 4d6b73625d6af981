package valkeydb

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"resume-analyzer/internal/models"
	"resume-analyzer/internal/queue"
	"resume-analyzer/internal/storage"

	"github.com/google/uuid"
	"github.com/valkey-io/valkey-go"
)

const (
	CleanupQueue = "cleanup-queue"

	progressPrefix = "progress:"
	progressTTL    = 24 * time.Hour
	popTimeout     = 5 * time.Second
)

type ValkeyClient struct {
	Client valkey.Client
}

func New(ctx context.Context, address string, password string) (*ValkeyClient, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{address},
		Password:    password,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to create Valkey client: %w", err)
	}

	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("unable to ping Valkey: %w", err)
	}

	return &ValkeyClient{Client: client}, nil
}

func (v *ValkeyClient) Close() {
	v.Client.Close()
}

func (v *ValkeyClient) Ping(ctx context.Context) error {
	return v.Client.Do(ctx, v.Client.B().Ping().Build()).Error()
}

// InsertRun queues a failed run so the worker can delete what it uploaded.
func (v *ValkeyClient) InsertRun(ctx context.Context, runID string) error {

	cmd := v.Client.B().Lpush().
		Key(CleanupQueue).
		Element(runID).
		Build()

	if _, err := v.Client.Do(ctx, cmd).AsInt64(); err != nil {
		return fmt.Errorf("unable to add run (%s) to the cleanup queue: %w", runID, err)
	}

	return nil
}

// ConsumeRun blocks for a few seconds waiting for a run, returning queue.ErrEmpty when none arrives.
func (v *ValkeyClient) ConsumeRun(ctx context.Context) (string, error) {

	cmd := v.Client.B().Brpop().
		Key(CleanupQueue).
		Timeout(popTimeout.Seconds()).
		Build()

	arr, err := v.Client.Do(ctx, cmd).AsStrSlice()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return "", queue.ErrEmpty
		}
		return "", fmt.Errorf("failed to parse blocking right pop response: %w", err)
	}

	if len(arr) < 2 {
		return "", fmt.Errorf("unexpected blocking right pop response: %v", arr)
	}

	return arr[1], nil
}

func progressKey(runID uuid.UUID) string {
	return progressPrefix + runID.String()
}

// Report stores the latest snapshot of a run. Snapshots expire after a day.
func (v *ValkeyClient) Report(ctx context.Context, runID uuid.UUID, p models.Progress) error {

	key := progressKey(runID)

	cmds := valkey.Commands{
		v.Client.B().Hset().
			Key(key).
			FieldValue().
			FieldValue("stage", p.Stage.String()).
			FieldValue("step", strconv.Itoa(p.Step)).
			FieldValue("failed_at", p.FailedAt.String()).
			FieldValue("error", p.Error).
			FieldValue("updated_at", p.UpdatedAt.UTC().Format(time.RFC3339Nano)).
			Build(),
		v.Client.B().Expire().Key(key).Seconds(int64(progressTTL.Seconds())).Build(),
	}

	for _, resp := range v.Client.DoMulti(ctx, cmds...) {
		if err := resp.Error(); err != nil {
			return fmt.Errorf("unable to report progress for run %s: %w", runID, err)
		}
	}
	return nil
}

func (v *ValkeyClient) Progress(ctx context.Context, runID uuid.UUID) (*models.Progress, error) {

	fields, err := v.Client.Do(ctx, v.Client.B().Hgetall().Key(progressKey(runID)).Build()).AsStrMap()
	if err != nil {
		return nil, fmt.Errorf("unable to read progress for run %s: %w", runID, err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("progress for run %s: %w", runID, storage.ErrNotFound)
	}

	step, err := strconv.Atoi(fields["step"])
	if err != nil {
		return nil, fmt.Errorf("invalid step for run %s: %w", runID, err)
	}

	p := &models.Progress{
		Stage:    models.ParseStage(fields["stage"]),
		Step:     step,
		FailedAt: models.ParseStage(fields["failed_at"]),
		Error:    fields["error"],
	}
	if ts, err := time.Parse(time.RFC3339Nano, fields["updated_at"]); err == nil {
		p.UpdatedAt = ts
	}
	return p, nil
}

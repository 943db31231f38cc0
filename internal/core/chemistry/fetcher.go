package chemistry

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"skincare-ingredients/internal/core/ingredient"
	"skincare-ingredients/internal/infrastructure/pubchem"
	"skincare-ingredients/internal/infrastructure/store"
	"skincare-ingredients/internal/infrastructure/telemetry"
	"skincare-ingredients/internal/pkg/common"
)

// fetcher 以固定大小批次查詢外部化學資料庫
type fetcher struct {
	client     Client
	store      Store
	batchSize  int
	batchDelay time.Duration
	retryDelay time.Duration
	metrics    *telemetry.Metrics
	sleep      func(ctx context.Context, d time.Duration) error
}

// fetch 每個名稱只查詢一次；批次間固定間隔，批次內並行且全部完成後才進入下一批
func (f *fetcher) fetch(ctx context.Context, names []string) map[string]Result {
	out := make(map[string]Result, len(names))
	if len(names) == 0 {
		return out
	}

	for i, chunk := range ingredient.Chunk(names, f.batchSize) {
		if i > 0 {
			if err := f.sleep(ctx, f.batchDelay); err != nil {
				for _, name := range chunk {
					out[name] = errorResult(name, "request cancelled")
				}
				continue
			}
		}

		results := make([]Result, len(chunk))
		var g errgroup.Group
		g.SetLimit(len(chunk))
		for j, name := range chunk {
			j, name := j, name
			g.Go(func() error {
				results[j] = f.fetchOne(ctx, name)
				return nil
			})
		}
		_ = g.Wait()

		for j, name := range chunk {
			out[name] = results[j]
		}
	}
	return out
}

// fetchOne 查詢單一名稱；遇到限流時等待後重試一次
func (f *fetcher) fetchOne(ctx context.Context, name string) Result {
	compound, err := f.client.Lookup(ctx, name)
	if errors.Is(err, pubchem.ErrThrottled) {
		common.LogDebug("PubChem 限流，稍後重試", zap.String("name", name))
		if sleepErr := f.sleep(ctx, f.retryDelay); sleepErr != nil {
			f.metrics.RecordFetch(ctx, "cancelled")
			return errorResult(name, "request cancelled")
		}
		compound, err = f.client.Lookup(ctx, name)
	}
	if err != nil {
		f.metrics.RecordFetch(ctx, fetchOutcome(err))
		common.LogWarn("PubChem 查詢失敗",
			zap.String("name", name),
			zap.Error(err),
		)
		return errorResult(name, lookupMessage(err))
	}
	f.metrics.RecordFetch(ctx, "ok")

	data := fromPubChem(compound)
	if f.store != nil {
		// 同步寫入，讓下一個請求直接命中快取
		err := f.store.Upsert(ctx, store.ChemistryRecord{
			CanonicalName:   name,
			ExternalID:      data.ExternalID,
			MolecularWeight: data.MolecularWeight,
			Properties:      data.Properties,
		})
		if err != nil {
			common.LogWarn("化學資料快取寫入失敗",
				zap.String("name", name),
				zap.Error(err),
			)
		}
	}

	return Result{
		SearchedName: name,
		Data:         data,
		Source:       ingredient.SourceAPI,
	}
}

func errorResult(name, message string) Result {
	return Result{
		SearchedName: name,
		Source:       ingredient.SourceError,
		Message:      message,
	}
}

func lookupMessage(err error) string {
	switch {
	case errors.Is(err, pubchem.ErrNotFound):
		return "not found in chemistry database"
	case errors.Is(err, pubchem.ErrThrottled):
		return "chemistry database busy, try again later"
	case errors.Is(err, pubchem.ErrMalformed):
		return "unexpected response from chemistry database"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "request cancelled"
	default:
		return "chemistry lookup failed"
	}
}

func fetchOutcome(err error) string {
	switch {
	case errors.Is(err, pubchem.ErrNotFound):
		return "not_found"
	case errors.Is(err, pubchem.ErrThrottled):
		return "throttled"
	case errors.Is(err, pubchem.ErrMalformed):
		return "malformed"
	default:
		return "error"
	}
}

// sleepContext 等待指定時間或直到 context 結束
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/ironsheep/flowchart-recognizer/internal/detection"
)

type detectTask struct {
	index   int
	contour detection.Contour
	results []detection.Detection
	wg      *sync.WaitGroup
}

// detectAll runs d over every contour. Results are stored by contour index,
// so the order does not depend on how the work was scheduled. With workers
// <= 1 the contours are processed in order on the calling goroutine.
//
// Cancellation stops new contours from being started; contours already
// running are waited for and ctx.Err() is returned.
func detectAll(ctx context.Context, d *detection.Detector, contours []detection.Contour, workers int) ([]detection.Detection, error) {
	results := make([]detection.Detection, len(contours))

	if workers <= 1 || len(contours) < 2 {
		for i, c := range contours {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			results[i] = d.Detect(i, c)
		}
		return results, nil
	}

	pool, err := ants.NewPoolWithFunc(min(workers, len(contours)), func(arg any) {
		task, ok := arg.(*detectTask)
		if !ok {
			panic("detect pool args type error")
		}
		defer task.wg.Done()
		task.results[task.index] = d.Detect(task.index, task.contour)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create detect pool: %w", err)
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for i, c := range contours {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		if err := pool.Invoke(&detectTask{index: i, contour: c, results: results, wg: &wg}); err != nil {
			wg.Done()
			wg.Wait()
			return nil, fmt.Errorf("failed to schedule contour %d: %w", i, err)
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

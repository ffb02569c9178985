package cmd

import "sync"

// RunPool 用 workers 个 goroutine 并行执行 fn，结果按 jobs 的顺序返回
// workers 不超过任务数且至少为 1
func RunPool[Job any, Result any](workers int, jobs []Job, fn func(index int, job Job) Result) []Result {
	results := make([]Result, len(jobs))
	if len(jobs) == 0 {
		return results
	}
	workers = max(1, min(workers, len(jobs)))

	indexes := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workers)
	for range workers {
		go func() {
			defer wg.Done()
			for i := range indexes {
				results[i] = fn(i, jobs[i])
			}
		}()
	}

	for i := range jobs {
		indexes <- i
	}
	close(indexes)
	wg.Wait()

	return results
}

package validate

import (
	"sync"

	"alloclab/internal/entity"
	"alloclab/internal/rules"
)

// Clients runs schema plus business checks over the client collection.
func Clients(clients []entity.Client) Result {
	return newResult(append(schemaClients(clients), businessClients(clients)...))
}

// Workers runs schema plus business checks over the worker collection.
func Workers(workers []entity.Worker) Result {
	return newResult(append(schemaWorkers(workers), businessWorkers(workers)...))
}

// Tasks runs schema plus business checks over the task collection.
func Tasks(tasks []entity.Task) Result {
	return newResult(append(schemaTasks(tasks), businessTasks(tasks)...))
}

// CrossEntity runs the checks spanning more than one collection, plus
// allocation-rule feasibility when a rule set is supplied.
func CrossEntity(clients []entity.Client, workers []entity.Worker, tasks []entity.Task, set rules.Set, opts Options) Result {
	return newResult(crossEntity(clients, workers, tasks, set, opts))
}

// All validates the three collections and assembles the unified summary.
func All(clients []entity.Client, workers []entity.Worker, tasks []entity.Task) Summary {
	return AllWithRules(clients, workers, tasks, rules.Set{}, Options{})
}

// AllWithRules is All plus allocation-rule feasibility and tunable options.
// The four groups are independent and run concurrently over the immutable
// snapshot; the summary is assembled only once every group has finished.
func AllWithRules(clients []entity.Client, workers []entity.Worker, tasks []entity.Task, set rules.Set, opts Options) Summary {
	var summary Summary
	var wg sync.WaitGroup
	wg.Add(4)
	go func() {
		defer wg.Done()
		summary.Clients = Clients(clients)
	}()
	go func() {
		defer wg.Done()
		summary.Workers = Workers(workers)
	}()
	go func() {
		defer wg.Done()
		summary.Tasks = Tasks(tasks)
	}()
	go func() {
		defer wg.Done()
		summary.CrossEntity = CrossEntity(clients, workers, tasks, set, opts)
	}()
	wg.Wait()

	for _, res := range []Result{summary.Clients, summary.Workers, summary.Tasks, summary.CrossEntity} {
		summary.TotalErrors += len(res.Errors)
		summary.TotalWarnings += len(res.Warnings)
	}
	return summary
}

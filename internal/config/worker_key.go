package config

type WorkerKeyStruct struct {
	ActivityQueue       string
	PersistResultsQueue string
}

var WorkerKey = &WorkerKeyStruct{
	ActivityQueue:       "activity_events_queue",
	PersistResultsQueue: "persist_results_queue",
}

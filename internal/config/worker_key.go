package config

type WorkerKeyStruct struct{}

func NewWorkerKeyStruct() *WorkerKeyStruct {
	return &WorkerKeyStruct{}
}

// ExamStatsQueue is the Redis list consumed by the stats rollup worker.
func (r *WorkerKeyStruct) StatsQueue() string {
	return "worker:exam_stats"
}

var WorkerKey = NewWorkerKeyStruct()

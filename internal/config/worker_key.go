package config

type WorkerKeyStruct struct {
	ReadQRQueue        string
	TaskEvalQueue      string
	IDPredictionsQueue string
}

var WorkerKey = &WorkerKeyStruct{
	ReadQRQueue:        "read_qr_queue",
	TaskEvalQueue:      "task_eval_queue",
	IDPredictionsQueue: "id_predictions_queue",
}

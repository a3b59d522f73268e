package domain

import "time"

// UploadJob representa una petición de publicación.
// Un job es inmutable después de su creación: un reintento construye
// un intento nuevo, nunca muta el job original.
type UploadJob struct {
	ID         string
	Title      string
	Tags       []string
	Mentions   []string
	MediaPaths []string
	CoverPath  string    // opcional
	PublishAt  time.Time // zero = publicación inmediata
	Account    *Account
}

// Scheduled retorna true si el job tiene hora de publicación programada
func (j *UploadJob) Scheduled() bool {
	return !j.PublishAt.IsZero()
}

// UploadReceipt es el comprobante de una publicación exitosa
type UploadReceipt struct {
	JobID       string
	Platform    string
	AccountID   string
	PublishedAt time.Time
}

// JobRecord es el detalle por-job de un batch
type JobRecord struct {
	JobID      string
	Success    bool
	Attempts   int
	FinishedAt time.Time
	Error      string
}

// BatchResult agrega el resultado de un batch; inmutable una vez retornado
type BatchResult struct {
	Total     int
	Succeeded int
	Failed    int
	Jobs      []JobRecord
}

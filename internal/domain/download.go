package domain

// DownloadResult records a document that survived the round trip. Path and
// Bytes are set when a sink accepted the body; Data carries the body only
// when no sink is configured.
type DownloadResult struct {
	Case     CaseNumber
	Document Document
	Path     string
	Bytes    int64
	Data     []byte
}

// DownloadOutcome is one entry of a batch download: either a result or the
// error that stopped this single document, never both.
type DownloadOutcome struct {
	Document Document
	Result   *DownloadResult
	Err      error
}

// CaseFetchResult is one entry of a batch lookup, positionally matched to
// the requested numbers.
type CaseFetchResult struct {
	Number CaseNumber
	Case   *Case
	Err    error
}

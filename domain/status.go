package domain

// DownloadStatus tracks how a note's content arrived in the store.
// Sync never downgrades a LOADED note back to a weaker status.
type DownloadStatus int

const (
	StatusUnknown DownloadStatus = 0
	StatusLoaded  DownloadStatus = 1
	StatusDraft   DownloadStatus = 2
	StatusSending DownloadStatus = 3
)

// DownloadStatusFromID restores a status stored in the database.
func DownloadStatusFromID(id int64) DownloadStatus {
	switch id {
	case 1:
		return StatusLoaded
	case 2:
		return StatusDraft
	case 3:
		return StatusSending
	default:
		return StatusUnknown
	}
}

func (s DownloadStatus) ID() int64 {
	return int64(s)
}

func (s DownloadStatus) String() string {
	switch s {
	case StatusLoaded:
		return "LOADED"
	case StatusDraft:
		return "DRAFT"
	case StatusSending:
		return "SENDING"
	default:
		return "UNKNOWN"
	}
}

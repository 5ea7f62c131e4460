package debrid

// Status is the state of a debrid job.
type Status string

const (
	StatusAdding                Status = "adding"
	StatusMagnetError           Status = "magnet_error"
	StatusWaitingFilesSelection Status = "waiting_files_selection"
	StatusQueued                Status = "queued"
	StatusDownloading           Status = "downloading"
	StatusDownloaded            Status = "downloaded"
	StatusError                 Status = "error"
	StatusVirus                 Status = "virus"
	StatusDead                  Status = "dead"
)

// validTransitions defines allowed state transitions.
// Key is the "from" status, value is list of valid "to" statuses.
var validTransitions = map[Status][]Status{
	StatusAdding:                {StatusWaitingFilesSelection, StatusQueued, StatusDownloading, StatusDownloaded, StatusMagnetError, StatusError},
	StatusWaitingFilesSelection: {StatusQueued, StatusDownloading, StatusDownloaded, StatusError, StatusVirus, StatusDead},
	StatusQueued:                {StatusDownloading, StatusDownloaded, StatusError, StatusVirus, StatusDead},
	StatusDownloading:           {StatusDownloaded, StatusError, StatusVirus, StatusDead},
	StatusDownloaded:            {StatusError}, // zero links
	StatusMagnetError:           {},
	StatusError:                 {},
	StatusVirus:                 {},
	StatusDead:                  {},
}

// CanTransitionTo returns true if transitioning from s to target is valid.
// Staying in the same non-terminal state is always valid.
func (s Status) CanTransitionTo(target Status) bool {
	if s == target {
		return !s.IsTerminal()
	}
	for _, v := range validTransitions[s] {
		if v == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether polling should stop.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusDownloaded, StatusError, StatusMagnetError, StatusVirus, StatusDead:
		return true
	}
	return false
}

// IsFailure reports whether s is a terminal failure.
func (s Status) IsFailure() bool {
	return s.IsTerminal() && s != StatusDownloaded
}

// mapStatus converts an upstream torrent status to a job status.
func mapStatus(upstream string) Status {
	switch upstream {
	case "magnet_conversion":
		return StatusAdding
	case "waiting_files_selection":
		return StatusWaitingFilesSelection
	case "queued":
		return StatusQueued
	case "downloading", "compressing", "uploading":
		return StatusDownloading
	case "downloaded":
		return StatusDownloaded
	case "magnet_error":
		return StatusMagnetError
	case "virus":
		return StatusVirus
	case "dead":
		return StatusDead
	default:
		return StatusError
	}
}

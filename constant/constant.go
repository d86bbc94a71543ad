package constant

// RecordingStatus follows queued -> processing -> done|error, with an
// explicit user-triggered error -> queued retry transition. This service
// only ever creates recordings in queued and performs the retry reset;
// the remaining transitions belong to the external analysis job.
type RecordingStatus string

const (
	RecordingStatusQueued     RecordingStatus = "queued"
	RecordingStatusProcessing RecordingStatus = "processing"
	RecordingStatusDone       RecordingStatus = "done"
	RecordingStatusError      RecordingStatus = "error"
)

func (s RecordingStatus) String() string {
	return string(s)
}

// RecordingSource identifies where a recording's bytes came from.
type RecordingSource string

const (
	SourceWeb      RecordingSource = "web"
	SourceSubstack RecordingSource = "substack"
	SourceGmail    RecordingSource = "gmail"
)

func (s RecordingSource) String() string {
	return string(s)
}

// ImportableSource reports whether s is accepted by the URL import endpoint.
// Direct uploads are always "web" and never pass through this check.
func ImportableSource(s RecordingSource) bool {
	return s == SourceSubstack || s == SourceGmail
}

type Environment string

const (
	EnvironmentProduction Environment = "production"
	EnvironmentStaging    Environment = "staging"
	EnvironmentDevelop    Environment = "develop"
)

func (e Environment) String() string {
	return string(e)
}

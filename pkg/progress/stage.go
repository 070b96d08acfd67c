package progress

// Stage identifies one step of the withdrawal workflow. The zero value is
// StageNone. Stages are ordered: the tracker only allows forward movement,
// except for the jump to StageError which is allowed from any non-terminal
// stage.
type Stage int

const (
	StageNone Stage = iota
	StageForm
	StageGeneratingURL
	StageRedirecting
	StageDepositing
	StageQuerying
	StageSigning
	StageWithdrawing
	StageDone
	StageError
)

func (s Stage) String() string {
	switch s {
	case StageNone:
		return "none"
	case StageForm:
		return "form"
	case StageGeneratingURL:
		return "generating_url"
	case StageRedirecting:
		return "redirecting_provider"
	case StageDepositing:
		return "depositing"
	case StageQuerying:
		return "querying"
	case StageSigning:
		return "signing"
	case StageWithdrawing:
		return "withdrawing"
	case StageDone:
		return "done"
	case StageError:
		return "error"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further stage transitions are allowed.
func (s Stage) Terminal() bool {
	return s == StageDone || s == StageError
}

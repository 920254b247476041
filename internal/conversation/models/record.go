package models

type RecordStatus string

// Status labels are stored as the dashboard displays them
const (
	RecordInProgress RecordStatus = "진행중"
	RecordComplete   RecordStatus = "완료"
)

// Toggle flips between in-progress and complete
func (s RecordStatus) Toggle() RecordStatus {
	if s == RecordInProgress {
		return RecordComplete
	}
	return RecordInProgress
}

// StoredConversationRecord is one entry of the persisted conversation list
type StoredConversationRecord struct {
	Status        RecordStatus `json:"status" yaml:"status"`
	Title         string       `json:"title" yaml:"title"`
	Date          string       `json:"date" yaml:"date"`
	Hospital      string       `json:"hospital" yaml:"hospital"`
	Summary       string       `json:"summary,omitempty" yaml:"summary,omitempty"`
	Messages      []ChatTurn   `json:"messages,omitempty" yaml:"messages,omitempty"`
	LastUpdatedAt int64        `json:"lastUpdatedAt,omitempty" yaml:"lastUpdatedAt,omitempty"`
}

// Settings is the patient/session form saved under settingFormData
type Settings struct {
	Name         string `json:"name" yaml:"name"`
	Gender       string `json:"gender" yaml:"gender" validate:"omitempty,oneof=남 여"`
	BirthDate    string `json:"birthDate" yaml:"birthDate"`
	KTASCode     string `json:"ktasCode" yaml:"ktasCode"`
	Notes        string `json:"notes" yaml:"notes"`
	HospitalName string `json:"hospitalName" yaml:"hospitalName"`
}

package backend

// Reminder lifecycle statuses as the backend reports them.
const (
	StatusDraft     = "draft"
	StatusConfirmed = "confirmed"
	StatusDone      = "done"
	StatusCancelled = "cancelled"
)

// Emergency escalation statuses.
const (
	EmergencyStatusOK     = "ok"
	EmergencyStatusActive = "emergency"
)

type UserCreateRequest struct {
	FullName string `json:"full_name"`
}

type UserProfileResponse struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
}

type DeviceRegistrationRequest struct {
	DeviceID         string `json:"device_id"`
	UserID           string `json:"user_id"`
	EmergencyContact string `json:"emergency_contact"`
	EmergencyPhone   string `json:"emergency_phone"`
}

// DeviceProfile carries the health profile. The list fields travel as
// single semicolon-joined strings on the wire.
type DeviceProfile struct {
	DeviceID     string `json:"device_id"`
	MedicalNotes string `json:"medical_notes"`
	Conditions   string `json:"conditions"`
	Medications  string `json:"medications"`
}

type UpdateDeviceProfileRequest struct {
	MedicalNotes string `json:"medical_notes"`
	Conditions   string `json:"conditions"`
	Medications  string `json:"medications"`
}

type ChatRequest struct {
	Text      string `json:"text"`
	DeviceID  string `json:"device_id"`
	SessionID string `json:"session_id,omitempty"`
}

type ChatResponse struct {
	Reply      string `json:"reply"`
	Flow       string `json:"flow,omitempty"`
	NextPrompt string `json:"next_prompt,omitempty"`
	Emergency  bool   `json:"emergency"`
}

type ReminderResponse struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	DueAt     string `json:"due_at"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at,omitempty"`
}

type CreateReminderRequest struct {
	DeviceID string `json:"device_id"`
	Title    string `json:"title"`
	DueAt    string `json:"due_at"`
	Timezone string `json:"timezone"`
	Status   string `json:"status"`
}

type UpdateReminderRequest struct {
	Status string `json:"status"`
}

type TriggerEmergencyRequest struct {
	DeviceID string `json:"device_id"`
	Protocol string `json:"protocol"`
	Reason   string `json:"reason"`
}

type EmergencyStatusResponse struct {
	Status       string `json:"status"`
	Protocol     string `json:"protocol,omitempty"`
	ContactName  string `json:"contact_name,omitempty"`
	ContactPhone string `json:"contact_phone,omitempty"`
	EmergencyID  string `json:"emergency_id,omitempty"`
	Reason       string `json:"reason,omitempty"`
}

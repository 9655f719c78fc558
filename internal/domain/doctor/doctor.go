package doctor

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinicdesk/internal/domain/timeslot"
)

type ContactInfo struct {
	Phone string `gorm:"column:phone;type:varchar(20)"`
	Email string `gorm:"column:email;type:varchar(255);uniqueIndex"`
}

type Doctor struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
	DeletedAt *time.Time `gorm:"index"`

	FirstName string `gorm:"column:first_name;type:varchar(100);not null"`
	LastName  string `gorm:"column:last_name;type:varchar(100);not null"`
	Specialty string `gorm:"column:specialty;type:varchar(100);not null;index"`

	ContactInfo

	// AvailableTimes holds the recurring availability windows as stored,
	// "HH:mm - HH:mm" each, interpreted as every-day recurrence.
	AvailableTimes []string `gorm:"column:available_times;serializer:json"`

	// Patterns is the typed form of AvailableTimes, populated once at load
	// by ParsePatterns. Malformed entries are skipped, never fatal.
	Patterns []timeslot.Pattern `gorm:"-"`

	CreatedBy uuid.UUID `gorm:"column:created_by;type:uuid;not null"`
}

func (Doctor) TableName() string {
	return "clinical.doctors"
}

func (d *Doctor) FullName() string {
	return strings.TrimSpace(d.FirstName + " " + d.LastName)
}

// ParsePatterns converts AvailableTimes into typed patterns, keeping the
// declared order. It returns the entries that failed to parse so the caller
// can log them; a single bad window must not discard the doctor's whole
// availability.
func (d *Doctor) ParsePatterns() (skipped []string) {
	d.Patterns = d.Patterns[:0]
	for _, raw := range d.AvailableTimes {
		p, err := timeslot.Parse(raw)
		if err != nil {
			skipped = append(skipped, raw)
			continue
		}
		d.Patterns = append(d.Patterns, p)
	}
	return skipped
}

// AvailableIn reports whether at least one pattern starts in the bucket.
func (d *Doctor) AvailableIn(b timeslot.Bucket) bool {
	for _, p := range d.Patterns {
		if p.Bucket() == b {
			return true
		}
	}
	return false
}

type CreateDoctorCommand struct {
	FirstName      string
	LastName       string
	Specialty      string
	Phone          string
	Email          string
	Password       string
	AvailableTimes []string
	CreatedBy      uuid.UUID
}

type UpdateDoctorCommand struct {
	FirstName      *string
	LastName       *string
	Specialty      *string
	Phone          *string
	Email          *string
	AvailableTimes *[]string
	UpdatedBy      uuid.UUID
}

// FilterDoctorsQuery composes the read-side doctor filters. Zero values
// mean "match all" for that dimension.
type FilterDoctorsQuery struct {
	Name      string           // substring, case-insensitive
	Specialty string           // exact, case-insensitive
	TimeOfDay *timeslot.Bucket // AM/PM per pattern start
}

// View is a flattened read projection so clients need no further joins.
type View struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Specialty      string    `json:"specialty"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	AvailableTimes []string  `json:"available_times"`
}

func (d *Doctor) ToView() View {
	return View{
		ID:             d.ID,
		Name:           d.FullName(),
		Specialty:      d.Specialty,
		Email:          d.Email,
		Phone:          d.Phone,
		AvailableTimes: d.AvailableTimes,
	}
}

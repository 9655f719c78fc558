package patient

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type ContactInfo struct {
	Phone   string `gorm:"column:phone;type:varchar(20)" json:"phone"`
	Email   string `gorm:"column:email;type:varchar(255);uniqueIndex" json:"email"`
	Address string `gorm:"column:address;type:text" json:"address"`
}

type Patient struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"-"`
	DeletedAt *time.Time `gorm:"index" json:"-"`

	FirstName string `gorm:"column:first_name;type:varchar(100);not null" json:"first_name"`
	LastName  string `gorm:"column:last_name;type:varchar(100);not null" json:"last_name"`

	ContactInfo

	PasswordHash string `gorm:"column:password_hash;type:varchar(255);not null" json:"-"`
}

func (Patient) TableName() string {
	return "clinical.patients"
}

func (p *Patient) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

type RegisterPatientCommand struct {
	FirstName string
	LastName  string
	Phone     string
	Email     string
	Address   string
	Password  string
}

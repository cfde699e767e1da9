package access

import "time"

type AccessRequest struct {
	ID            string    `gorm:"primaryKey;column:id;type:varchar(36)"`
	RequestType   string    `gorm:"column:request_type;not null"`
	ContactPerson string    `gorm:"column:contact_person;not null"`
	Email         string    `gorm:"column:email;not null;index"`
	Phone         string    `gorm:"column:phone;not null"`
	Purpose       string    `gorm:"column:purpose;not null"`
	CompanyName   *string   `gorm:"column:company_name"`
	BusinessType  *string   `gorm:"column:business_type"`
	Experience    *string   `gorm:"column:experience"`
	MCQScore      *int      `gorm:"column:mcq_score"`
	Status        string    `gorm:"column:status;not null;index"`
	SubmittedAt   time.Time `gorm:"column:submitted_at;not null"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (AccessRequest) TableName() string {
	return "access_requests"
}

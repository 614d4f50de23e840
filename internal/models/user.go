package models

type UserRole string

const (
	UserRoleAdmin UserRole = "admin"
	UserRoleUser  UserRole = "user"
)

type User struct {
	BaseModel
	Username        string        `json:"username" gorm:"type:varchar(32);uniqueIndex;not null"`
	Email           string        `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash    string        `json:"-" gorm:"type:text;not null"`
	Age             int           `json:"age" gorm:"not null"`
	Role            UserRole      `json:"role" gorm:"type:varchar(20);not null;default:'user'"`
	CanBeContacted  bool          `json:"canBeContacted" gorm:"not null;default:false"`
	CanDataBeShared bool          `json:"canDataBeShared" gorm:"not null;default:false"`
	Contributions   []Contributor `json:"-" gorm:"foreignKey:UserID"`
}

func (u *User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}

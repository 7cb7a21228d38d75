package users

import "time"

// User is a coach account. Athletes and plans all hang off a user.
type User struct {
	ID             int       `json:"id"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"`
	FullName       string    `json:"full_name"`
	PhoneNumber    string    `json:"phone_number,omitempty"`
	GymName        string    `json:"gym_name,omitempty"`
	Bio            string    `json:"bio,omitempty"`
	Theme          string    `json:"theme"`
	Language       string    `json:"language"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Stats is the coach dashboard summary.
type Stats struct {
	TotalAthletes       int `json:"total_athletes"`
	ActiveAthletes      int `json:"active_athletes"`
	ActiveTrainingPlans int `json:"active_training_plans"`
	ActiveDietPlans     int `json:"active_diet_plans"`
}

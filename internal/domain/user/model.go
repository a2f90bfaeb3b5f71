package user

// PatientProfile is the patient's own account view.
type PatientProfile struct {
	ID      int64    `json:"id"`
	Name    string   `json:"name"`
	Email   string   `json:"email"`
	Phone   string   `json:"phone"`
	Sex     string   `json:"sex"`
	Height  *float64 `json:"height"`
	Weight  *float64 `json:"weight"`
	Age     *int     `json:"age"`
	Address *string  `json:"address"`
}

// DoctorProfile is the doctor's own account view.
type DoctorProfile struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Sex       string `json:"sex"`
	Specialty string `json:"specialty"`
}

// Credentials for login.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

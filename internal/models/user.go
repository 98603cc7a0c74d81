package models

type User struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Password       string `json:"password,omitempty"`
	Address        string `json:"address"`
	RegisteredDate string `json:"registeredDate,omitempty"`
}

// Public strips the credential before a user leaves the process.
func (u User) Public() User {
	u.Password = ""
	return u
}

func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	out := *u
	return &out
}

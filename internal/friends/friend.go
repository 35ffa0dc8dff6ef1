package friends

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrNotFound 好友关系不存在。
	ErrNotFound = errors.New("friends: not found")

	// ErrConflict 好友关系已存在。
	ErrConflict = errors.New("friends: already exists")

	// ErrInvalid 输入不合法。
	ErrInvalid = errors.New("friends: invalid input")

	// ErrUnavailable 存储不可用（熔断中）。
	ErrUnavailable = errors.New("friends: store unavailable")
)

// Friend 一条好友关系。
type Friend struct {
	UserID    string    `json:"user_id" db:"user_id"`
	FriendID  string    `json:"friend_id" db:"friend_id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email,omitempty" db:"email"`
	Balance   int64     `json:"balance" db:"balance"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// AddRequest 添加好友的请求体。
type AddRequest struct {
	FriendID string `json:"friend_id"`
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	Balance  int64  `json:"balance"`
}

// normalize 去除首尾空白并校验必填字段。
func (r AddRequest) normalize(userID string) (Friend, error) {
	f := Friend{
		UserID:   userID,
		FriendID: strings.TrimSpace(r.FriendID),
		Name:     strings.TrimSpace(r.Name),
		Email:    strings.TrimSpace(r.Email),
		Balance:  r.Balance,
	}
	switch {
	case f.FriendID == "":
		return Friend{}, errors.Join(ErrInvalid, errors.New("friend_id is required"))
	case f.Name == "":
		return Friend{}, errors.Join(ErrInvalid, errors.New("name is required"))
	case f.FriendID == userID:
		return Friend{}, errors.Join(ErrInvalid, errors.New("cannot befriend yourself"))
	}
	return f, nil
}

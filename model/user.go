package model

import "time"

type User struct {
	Id        string `gorm:"primaryKey"`
	CreatedAt time.Time
	Name      string

	Followers []*User `json:"followers" gorm:"many2many:user_follows;joinForeignKey:FolloweeID;joinReferences:FollowerID"`
}

// UserFollow is the join row backing the follower relation. FollowerID
// follows FolloweeID.
type UserFollow struct {
	FolloweeID string `gorm:"primaryKey"`
	FollowerID string `gorm:"primaryKey"`
	CreatedAt  time.Time
}

package models

import (
	"time"

	"gorm.io/gorm"
)

/** --------------------ENTITIES-------------------- */

// User represents an account. Passcode is the bcrypt hash used by the
// passcode auth flow and is never serialized.
type User struct {
	gorm.Model
	Email          string  `gorm:"uniqueIndex;not null" json:"email"`
	Nickname       string  `gorm:"not null" json:"nickname"`
	Passcode       string  `json:"-"`
	ProfilePicture string  `json:"profile_picture,omitempty"`
	Bio            string  `json:"bio,omitempty"`
	AppleID        *string `gorm:"uniqueIndex" json:"-"`
	IsAdmin        bool    `gorm:"default:false" json:"is_admin"`
}

// RefreshToken tracks issued refresh tokens so they can be rotated and revoked.
type RefreshToken struct {
	gorm.Model
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	TokenID   string    `gorm:"uniqueIndex;not null" json:"token_id"`
	ExpiresAt time.Time `json:"expires_at"`
	Revoked   bool      `gorm:"default:false" json:"revoked"`
}

type Follow struct {
	gorm.Model
	FollowerID  uint `gorm:"uniqueIndex:idx_follower_following;not null" json:"follower_id"`
	FollowingID uint `gorm:"uniqueIndex:idx_follower_following;not null" json:"following_id"`
}

type Post struct {
	gorm.Model
	UserID    uint     `gorm:"index;not null" json:"user_id"`
	Content   string   `json:"content"`
	MediaURL  *string  `json:"media_url,omitempty"`
	MediaType *string  `json:"media_type,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	VenueName *string  `json:"venue_name,omitempty"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

type Like struct {
	gorm.Model
	UserID uint `gorm:"uniqueIndex:idx_user_post;not null" json:"user_id"`
	PostID uint `gorm:"uniqueIndex:idx_user_post;not null" json:"post_id"`
}

type CheckIn struct {
	gorm.Model
	UserID       uint    `gorm:"index;not null" json:"user_id"`
	Latitude     float64 `gorm:"not null" json:"latitude"`
	Longitude    float64 `gorm:"not null" json:"longitude"`
	LocationName string  `json:"location_name"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

// Bounce is a spontaneous meetup at a venue, either happening now or scheduled.
type Bounce struct {
	gorm.Model
	CreatorID    uint      `gorm:"index;not null" json:"creator_id"`
	VenueName    string    `gorm:"not null" json:"venue_name"`
	VenueAddress string    `json:"venue_address"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	BounceTime   time.Time `gorm:"index" json:"bounce_time"`
	IsNow        bool      `gorm:"default:false" json:"is_now"`
	IsPublic     bool      `gorm:"default:false" json:"is_public"`
	Status       string    `gorm:"default:'active';index" json:"status"`

	Creator   User             `gorm:"foreignKey:CreatorID" json:"-"`
	Invites   []BounceInvite   `gorm:"foreignKey:BounceID" json:"invites,omitempty"`
	Attendees []BounceAttendee `gorm:"foreignKey:BounceID" json:"attendees,omitempty"`
}

const (
	BounceStatusActive    = "active"
	BounceStatusCancelled = "cancelled"
	BounceStatusEnded     = "ended"
)

type BounceInvite struct {
	gorm.Model
	BounceID uint   `gorm:"uniqueIndex:idx_bounce_user_invite;not null" json:"bounce_id"`
	UserID   uint   `gorm:"uniqueIndex:idx_bounce_user_invite;not null" json:"user_id"`
	Status   string `gorm:"default:'pending'" json:"status"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

const (
	InviteStatusPending  = "pending"
	InviteStatusAccepted = "accepted"
	InviteStatusDeclined = "declined"
)

type BounceAttendee struct {
	gorm.Model
	BounceID uint `gorm:"uniqueIndex:idx_bounce_user_attendee;not null" json:"bounce_id"`
	UserID   uint `gorm:"uniqueIndex:idx_bounce_user_attendee;not null" json:"user_id"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

// AnonymousLocation is a live map marker keyed by a rotating id, deliberately
// carrying no user reference.
type AnonymousLocation struct {
	LocationID  string    `gorm:"primaryKey" json:"location_id"`
	Latitude    float64   `gorm:"not null" json:"latitude"`
	Longitude   float64   `gorm:"not null" json:"longitude"`
	AreaName    *string   `json:"area_name,omitempty"`
	LastUpdated time.Time `gorm:"index" json:"last_updated"`
}

type Livestream struct {
	gorm.Model
	UserID     uint       `gorm:"index;not null" json:"user_id"`
	RoomID     string     `gorm:"uniqueIndex;not null" json:"room_id"`
	PostID     string     `json:"post_id"`
	Status     string     `gorm:"default:'active';index" json:"status"`
	MaxViewers int        `gorm:"default:0" json:"max_viewers"`
	EndedAt    *time.Time `json:"ended_at,omitempty"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

const (
	LivestreamStatusActive = "active"
	LivestreamStatusEnded  = "ended"
)

/** -------------------- DTOs -------------------- */

type UserResponse struct {
	ID             uint      `json:"id"`
	Email          string    `json:"email"`
	Nickname       string    `json:"nickname"`
	ProfilePicture string    `json:"profile_picture,omitempty"`
	Bio            string    `json:"bio,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func NewUserResponse(u *User) *UserResponse {
	return &UserResponse{
		ID:             u.ID,
		Email:          u.Email,
		Nickname:       u.Nickname,
		ProfilePicture: u.ProfilePicture,
		Bio:            u.Bio,
		CreatedAt:      u.CreatedAt,
	}
}

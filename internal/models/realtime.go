package models

import (
	"encoding/json"
	"time"
)

// Request types accepted from a chat connection.
const (
	RequestAuthenticate = "authenticate"
	RequestFindPartner  = "findPartner"
	RequestEndChat      = "endChat"
	RequestSkip         = "skip"
	RequestOnlineUsers  = "requestOnlineUsers"
)

// Event types pushed to a chat connection.
const (
	EventAuthenticated       = "authenticated"
	EventWaiting             = "waiting"
	EventPaired              = "paired"
	EventPartnerDisconnected = "partnerDisconnected"
	EventOnlineUsersUpdate   = "onlineUsersUpdate"
	EventError               = "error"
	EventAccountSuspended    = "account-suspended"
)

// Relayed types travel in both directions and are forwarded verbatim to the partner.
const (
	SignalOffer        = "offer"
	SignalAnswer       = "answer"
	SignalICECandidate = "ice-candidate"
	SignalMessage      = "message"
)

// IsRelayType reports whether t is forwarded verbatim between partners.
func IsRelayType(t string) bool {
	switch t {
	case SignalOffer, SignalAnswer, SignalICECandidate, SignalMessage:
		return true
	}
	return false
}

// ClientRequest is the envelope read from the websocket.
type ClientRequest struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ServerEvent is the envelope written to the websocket.
type ServerEvent struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

type Status string

const (
	StatusOnline   Status = "online"
	StatusWaiting  Status = "waiting"
	StatusChatting Status = "chatting"
)

// FilterAny accepts every value of a filter dimension.
const FilterAny = "any"

// Filters is the match request attached to a searching connection.
type Filters struct {
	GenderFilter  string `json:"genderFilter"`
	CountryFilter string `json:"countryFilter"`
}

// Normalize replaces empty dimensions with FilterAny.
func (f Filters) Normalize() Filters {
	if f.GenderFilter == "" {
		f.GenderFilter = FilterAny
	}
	if f.CountryFilter == "" {
		f.CountryFilter = FilterAny
	}
	return f
}

// Accepts reports whether p satisfies both dimensions of f.
func (f Filters) Accepts(p Profile) bool {
	return (f.GenderFilter == FilterAny || f.GenderFilter == p.Gender) &&
		(f.CountryFilter == FilterAny || f.CountryFilter == p.Country)
}

// Profile is the read-only snapshot taken when a connection authenticates.
type Profile struct {
	UserID   string `json:"id"`
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Gender   string `json:"gender"`
	Country  string `json:"country"`
	Age      int    `json:"age"`
	Tokens   int    `json:"tokens"`
}

// PartnerInfo is the part of a profile revealed to the matched partner.
type PartnerInfo struct {
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Gender   string `json:"gender"`
	Country  string `json:"country"`
	Age      int    `json:"age"`
}

func (p Profile) PartnerInfo() PartnerInfo {
	return PartnerInfo{
		FullName: p.FullName,
		Username: p.Username,
		Gender:   p.Gender,
		Country:  p.Country,
		Age:      p.Age,
	}
}

type PairedPayload struct {
	Initiator   bool        `json:"initiator"`
	PartnerInfo PartnerInfo `json:"partnerInfo"`
}

// ConnectionSummary is one row of the presence snapshot.
type ConnectionSummary struct {
	ID       string `json:"id"`
	SocketID string `json:"socketId"`
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Gender   string `json:"gender"`
	Country  string `json:"country"`
	Status   Status `json:"status"`
}

type OnlineUsersPayload struct {
	Connections []ConnectionSummary `json:"connections"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Credentials are presented by the authenticate request.
type Credentials struct {
	Token string `json:"token"`
}

// KickCommand asks every instance to disconnect a user's live connection.
type KickCommand struct {
	UserID         string         `json:"userId"`
	Reason         string         `json:"reason"`
	SuspensionType SuspensionType `json:"suspensionType"`
	ExpiresAt      *time.Time     `json:"expiresAt"`
}

type SuspendedPayload struct {
	Reason         string         `json:"reason"`
	SuspensionType SuspensionType `json:"suspensionType"`
	ExpiresAt      *time.Time     `json:"expiresAt"`
}

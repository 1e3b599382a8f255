package playeradmin

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyTarget   = errors.New("target cannot be empty")
	ErrUnknownAction = errors.New("unknown player action")
)

type ActionType string

const (
	ActionOp          ActionType = "op"
	ActionDeop        ActionType = "deop"
	ActionWhitelist   ActionType = "whitelist"
	ActionUnwhitelist ActionType = "unwhitelist"
	ActionBan         ActionType = "ban"
	ActionUnban       ActionType = "unban"
	ActionBanIP       ActionType = "ban_ip"
	ActionUnbanIP     ActionType = "unban_ip"
)

func ActionTypes() []ActionType {
	return []ActionType{
		ActionOp, ActionDeop, ActionWhitelist, ActionUnwhitelist,
		ActionBan, ActionUnban, ActionBanIP, ActionUnbanIP,
	}
}

// Action is one of Op, Deop, Whitelist, Unwhitelist, Ban, Unban, BanIP or UnbanIP.
type Action interface {
	Type() ActionType
	isAction()
}

type Op struct {
	Name string
	ID   string
	// Level is clamped to 1..4, zero selects 4.
	Level int
	// BypassesPlayerLimit defaults to true when nil.
	BypassesPlayerLimit *bool
}

// Deop removes every operator whose identifier or name equals Target.
type Deop struct {
	Target string
}

type Whitelist struct {
	Name string
	ID   string
}

type Unwhitelist struct {
	Target string
}

type Ban struct {
	Name    string
	ID      string
	Reason  string
	Expires string
}

type Unban struct {
	Target string
}

type BanIP struct {
	IP      string
	Reason  string
	Expires string
}

type UnbanIP struct {
	IP string
}

func (Op) Type() ActionType          { return ActionOp }
func (Deop) Type() ActionType        { return ActionDeop }
func (Whitelist) Type() ActionType   { return ActionWhitelist }
func (Unwhitelist) Type() ActionType { return ActionUnwhitelist }
func (Ban) Type() ActionType         { return ActionBan }
func (Unban) Type() ActionType       { return ActionUnban }
func (BanIP) Type() ActionType       { return ActionBanIP }
func (UnbanIP) Type() ActionType     { return ActionUnbanIP }

func (Op) isAction()          {}
func (Deop) isAction()        {}
func (Whitelist) isAction()   {}
func (Unwhitelist) isAction() {}
func (Ban) isAction()         {}
func (Unban) isAction()       {}
func (BanIP) isAction()       {}
func (UnbanIP) isAction()     {}

// ActionRequest is the loosely typed form accepted by the API and CLI.
type ActionRequest struct {
	Action              ActionType `json:"action" binding:"required"`
	Name                string     `json:"name"`
	UUID                string     `json:"uuid"`
	IP                  string     `json:"ip"`
	Reason              string     `json:"reason"`
	Expires             string     `json:"expires"`
	Level               int        `json:"level"`
	BypassesPlayerLimit *bool      `json:"bypasses_player_limit"`
}

// ToAction converts the request into its variant. Removals target the identifier when present and
// the name otherwise. IP actions fall back to the name field when no IP is given.
func (r ActionRequest) ToAction() (Action, error) { //nolint:ireturn
	target := strings.TrimSpace(r.UUID)
	if target == "" {
		target = strings.TrimSpace(r.Name)
	}

	address := strings.TrimSpace(r.IP)
	if address == "" {
		address = strings.TrimSpace(r.Name)
	}

	switch ActionType(strings.ToLower(strings.TrimSpace(string(r.Action)))) {
	case ActionOp:
		return Op{Name: r.Name, ID: r.UUID, Level: r.Level, BypassesPlayerLimit: r.BypassesPlayerLimit}, nil
	case ActionDeop:
		return Deop{Target: target}, nil
	case ActionWhitelist:
		return Whitelist{Name: r.Name, ID: r.UUID}, nil
	case ActionUnwhitelist:
		return Unwhitelist{Target: target}, nil
	case ActionBan:
		return Ban{Name: r.Name, ID: r.UUID, Reason: r.Reason, Expires: r.Expires}, nil
	case ActionUnban:
		return Unban{Target: target}, nil
	case ActionBanIP:
		return BanIP{IP: address, Reason: r.Reason, Expires: r.Expires}, nil
	case ActionUnbanIP:
		return UnbanIP{IP: address}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, r.Action)
	}
}

// ParseAction builds an action from its string tag.
func ParseAction(kind string, name string, id string, reason string) (Action, error) { //nolint:ireturn
	return ActionRequest{Action: ActionType(kind), Name: name, UUID: id, Reason: reason}.ToAction()
}

package guildmodels

import "fmt"

//RolePolicy determines how reactions on a rule's message translate into role changes.
type RolePolicy string

//The supported reaction-role policies.
const (
	PolicyNormal   RolePolicy = "normal"
	PolicyUnique   RolePolicy = "unique"
	PolicyVerify   RolePolicy = "verify"
	PolicyDrop     RolePolicy = "drop"
	PolicyReversed RolePolicy = "reversed"
	PolicyLimit    RolePolicy = "limit"
	PolicyBinding  RolePolicy = "binding"
)

//ParseRolePolicy converts a user-supplied policy name into a RolePolicy
func ParseRolePolicy(s string) (RolePolicy, error) {
	switch p := RolePolicy(s); p {
	case PolicyNormal, PolicyUnique, PolicyVerify, PolicyDrop, PolicyReversed, PolicyLimit, PolicyBinding:
		return p, nil
	default:
		return "", fmt.Errorf("`%v` is not a valid role policy", s)
	}
}

//EmojiBinding associates a single emoji on a rule's message with a single role
type EmojiBinding struct {
	Emoji  string `gorethink:"emoji"`
	RoleID string `gorethink:"role_id"`
}

//ReactionRoleRule holds the emoji to role bindings and the active policy for one message.
//At most one binding may exist per emoji, and for the binding policy Limit is always 1.
type ReactionRoleRule struct {
	ChannelID string         `gorethink:"channel_id"`
	MessageID string         `gorethink:"message_id"`
	Policy    RolePolicy     `gorethink:"policy"`
	Limit     int            `gorethink:"limit"`
	Bindings  []EmojiBinding `gorethink:"bindings"`
}

//Binding returns the binding for the given emoji, or nil if the emoji is not bound
func (r *ReactionRoleRule) Binding(emoji string) *EmojiBinding {
	for i := range r.Bindings {
		if r.Bindings[i].Emoji == emoji {
			return &r.Bindings[i]
		}
	}
	return nil
}

//RoleIDs returns the set of role ids referenced by this rule's bindings
func (r *ReactionRoleRule) RoleIDs() []string {
	res := make([]string, 0, len(r.Bindings))
	for _, b := range r.Bindings {
		res = append(res, b.RoleID)
	}
	return res
}

//EffectiveLimit returns the role cap for this rule. The binding policy always caps at 1.
func (r *ReactionRoleRule) EffectiveLimit() int {
	if r.Policy == PolicyBinding {
		return 1
	}
	return r.Limit
}

//AddBinding appends a new emoji to role binding, rejecting emoji that are already bound
func (r *ReactionRoleRule) AddBinding(emoji, roleID string) error {
	if r.Binding(emoji) != nil {
		return fmt.Errorf("emoji %v is already bound on message %v", emoji, r.MessageID)
	}
	r.Bindings = append(r.Bindings, EmojiBinding{Emoji: emoji, RoleID: roleID})
	return nil
}

//RemoveBinding removes bindings matching the given emoji and/or role id. Empty strings
//match anything, so RemoveBinding("", "") clears every binding. It returns the number
//of bindings removed.
func (r *ReactionRoleRule) RemoveBinding(emoji, roleID string) int {
	kept := r.Bindings[:0]
	removed := 0
	for _, b := range r.Bindings {
		if (emoji == "" || b.Emoji == emoji) && (roleID == "" || b.RoleID == roleID) {
			removed++
			continue
		}
		kept = append(kept, b)
	}
	r.Bindings = kept
	return removed
}

//SetPolicy switches the rule to a new policy. A negative limit is rejected and the
//binding policy forces the limit to 1 regardless of what was requested.
func (r *ReactionRoleRule) SetPolicy(policy RolePolicy, limit int) error {
	if _, err := ParseRolePolicy(string(policy)); err != nil {
		return err
	}
	if limit < 0 {
		return fmt.Errorf("role limit must not be negative, got %v", limit)
	}
	if policy == PolicyBinding {
		limit = 1
	}
	r.Policy = policy
	r.Limit = limit
	return nil
}

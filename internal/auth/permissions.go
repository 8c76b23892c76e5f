package auth

import "github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/model"

type Permission string

const (
	PermViewClientList   Permission = "view_client_list"
	PermViewMessageList  Permission = "view_message_list"
	PermViewMailingList  Permission = "view_mailing_list"
	PermSetMailingStatus Permission = "set_mailing_status"
)

// RolePermissions is fixed at build time; plain users have no extra
// permissions and only ever see what they own.
var RolePermissions = map[string][]Permission{
	model.RoleManager: {
		PermViewClientList,
		PermViewMessageList,
		PermViewMailingList,
		PermSetMailingStatus,
	},
	model.RoleUser: nil,
}

// Principal is the authenticated caller.
type Principal struct {
	UserID int
	Email  string
	Role   string
}

func (p Principal) Can(perm Permission) bool {
	for _, granted := range RolePermissions[p.Role] {
		if granted == perm {
			return true
		}
	}
	return false
}

// Owns reports whether the caller owns a record with the given owner id.
func (p Principal) Owns(ownerID int) bool {
	return p.UserID == ownerID
}

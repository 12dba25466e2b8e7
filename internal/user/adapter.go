package user

import (
	"crewdesk_backend/internal/shared"
)

// ToProfile converts a GORM user.User model to the shared profile.
// Invitations must be preloaded for InvitedUsers to be filled.
func ToProfile(dbUser *User) (*shared.UserProfile, error) {
	if dbUser == nil {
		return nil, nil
	}
	invited := make([]string, 0, len(dbUser.Invitations))
	for _, inv := range dbUser.Invitations {
		invited = append(invited, inv.Email)
	}
	return shared.NewUserProfile(
		dbUser.ID,
		dbUser.FirebaseUID,
		dbUser.Email,
		dbUser.Name,
		dbUser.Role,
		dbUser.PhotoURL,
		dbUser.CreatedAt,
		invited,
	)
}

// updateColumns maps a partial profile update to column values.
func updateColumns(update shared.ProfileUpdate) map[string]interface{} {
	fields := make(map[string]interface{}, 2)
	if update.Name != nil {
		fields["name"] = *update.Name
	}
	if update.PhotoURL != nil {
		fields["photo_url"] = *update.PhotoURL
	}
	return fields
}

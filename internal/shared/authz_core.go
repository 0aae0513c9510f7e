package shared

// Permission catalogue seeded into the permissions table.
const (
	PermGetUser    = "get_user"
	PermCreateUser = "create_user"
	PermUpdateUser = "update_user"
	PermDeleteUser = "delete_user"

	PermGetPost    = "get_post"
	PermCreatePost = "create_post"
	PermDeletePost = "delete_post"

	PermUpdateProfile = "update_profile"

	PermGetData        = "get_data"
	PermCreateData     = "create_data"
	PermCreateResponse = "create_response"

	PermGetRole = "get_role"
)

// Role names known to the default access policy.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// AllPermissions lists every permission in the catalogue.
func AllPermissions() []string {
	return []string{
		PermGetUser,
		PermCreateUser,
		PermUpdateUser,
		PermDeleteUser,
		PermGetPost,
		PermCreatePost,
		PermDeletePost,
		PermUpdateProfile,
		PermGetData,
		PermCreateData,
		PermCreateResponse,
		PermGetRole,
	}
}

// DefaultRoleGrants maps each seeded role to its permissions.
func DefaultRoleGrants() map[string][]string {
	return map[string][]string{
		RoleAdmin: {
			PermGetUser,
			PermCreateUser,
			PermUpdateUser,
			PermDeleteUser,
			PermGetPost,
			PermCreatePost,
			PermDeletePost,
			PermUpdateProfile,
			PermGetData,
			PermCreateData,
			PermCreateResponse,
			PermGetRole,
		},
		RoleUser: {
			PermGetPost,
			PermCreatePost,
			PermUpdateProfile,
		},
	}
}

// DashboardPath is the landing page for a role.
func DashboardPath(role string) string {
	return "/" + role + "/dashboard"
}

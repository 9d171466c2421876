package rbac

// Simple default policy. Expand as needed.
var RolePermissions = map[string][]string{
	"student": {
		"assessment:view",
		"answer:check",
		"answer:submit",
		"submission:view-own",
	},
	"teacher": {
		"assessment:create",
		"assessment:view",
		"assessment:list",
		"answer:check",
		"submission:view-all",
		"submissions:list",
		"events:list",
	},
	"admin": {
		"*", // everything
	},
}

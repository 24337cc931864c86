package catalog

// The reference policies ship as catalog data, not runner code, so they
// ride the same evaluation path as user-authored rules.

const adminCountExpr = `package vigil

import rego.v1

max_allowed := object.get(input, ["thresholds", "max_admins"], 4)

admin_count := count([u | some u in input.users; u.is_admin])

result := {
	"violation": admin_count > max_allowed,
	"admin_count": admin_count,
	"max_allowed": max_allowed,
}
`

const inactiveProjectsExpr = `package vigil

import rego.v1

max_days := object.get(input, ["thresholds", "stale_days"], 365)

day_ns := 86400000000000

now_ns := time.parse_rfc3339_ns(input.extracted_at)

days_inactive(p) := floor((now_ns - time.parse_rfc3339_ns(p.modified_at)) / day_ns)

inactive contains entry if {
	some p in input.projects
	not p.archived
	days_inactive(p) > max_days
	entry := {"gid": p.gid, "name": p.name, "days_inactive": days_inactive(p)}
}

# A modification date we cannot read counts as inactive, not excluded.
inactive contains entry if {
	some p in input.projects
	not p.archived
	not days_inactive(p)
	entry := {"gid": p.gid, "name": p.name, "days_inactive": "unknown"}
}

result := {
	"violation": count(inactive) > 0,
	"inactive_count": count(inactive),
	"inactive_projects": inactive,
	"max_inactive_days": max_days,
}
`

const externalUsersExpr = `package vigil

import rego.v1

external_users contains {"gid": u.gid, "name": u.name} if {
	some u in input.users
	not u.is_admin
}

result := {
	"violation": count(external_users) > 0,
	"external_count": count(external_users),
	"external_users": external_users,
}
`

// Builtin returns the reference policy catalog: admin ceiling, inactive
// unarchived projects, and active external users.
func Builtin() *Catalog {
	return &Catalog{rules: []Rule{
		{
			ID:          "admin_count",
			Description: "No more than 4 Admins Configured",
			Expr:        adminCountExpr,
		},
		{
			ID:          "inactive_projects",
			Description: "No Inactive Projects Present",
			Expr:        inactiveProjectsExpr,
		},
		{
			ID:          "active_external_users",
			Description: "No Active External Users",
			Expr:        externalUsersExpr,
		},
	}}
}

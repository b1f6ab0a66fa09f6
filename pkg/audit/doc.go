// Package audit records security-relevant events to PostgreSQL.
//
// Tenant switches, access denials, and onboarding completions all land in
// the audit_logs table with the acting user, the organizations involved,
// and the request ID for correlation with the access log. A cron-driven
// sweeper enforces the retention window.
package audit

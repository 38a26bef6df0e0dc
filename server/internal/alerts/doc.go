// Package alerts implements the rule evaluation engine and webhook delivery
// for gas level alerting. Rules are evaluated against the status of an
// uploaded dataset session; webhooks are delivered to Slack, Teams, or
// generic HTTP targets.
package alerts

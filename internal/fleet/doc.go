// Package fleet loads and queries the cluster source of truth.
//
// The source of truth is a delimited table (CSV with a header row) holding
// one row per cluster. Three columns have meaning to stevedore; everything
// else rides along as template attributes:
//
//	cluster_name,cluster_group,cluster_tags,region,dns_zone
//	prod-us-east,prod,"critical,pci",us-east-1,example.com
//	staging-eu,staging,,eu-west-1,staging.example.com
//
// # Records
//
// Every column of a row becomes an attribute of its Record, keyed by the
// header name with surrounding whitespace trimmed. Records are held keyed
// by cluster name in first-seen order; a duplicate name replaces the
// earlier row but keeps its position.
//
// # Selection
//
// A Selector narrows the fleet to the clusters a run operates on: exact
// name lookup, tag intersection, or group equality. Records that fail
// validation (no group) are skipped with a warning, never fatal.
package fleet

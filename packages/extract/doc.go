// Package extract inspects classify response bodies with gjson: the
// top-level keys, the business type and the business name comparison,
// which the service may report as "comparison" or "businessNameComparison".
package extract

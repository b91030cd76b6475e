// Package suite defines test cases and the suites that group them.
//
// A suite is either built in (production, local, smoke) or read from a file:
// YAML or JSON documents, or an XLSX workbook with one case per row.
// Image files referenced by a case are embedded as base64 data URIs.
package suite

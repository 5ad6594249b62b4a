// Package metrics
package metrics

const PdmNamespace = "pdm"

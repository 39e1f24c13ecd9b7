// Package metrics counts crawl activity with Prometheus collectors.
//
// A Collector observes a crawl and keeps its counters in a private
// registry. After the crawl the registry can be written in the text
// exposition format, ready for the node_exporter textfile collector.
package metrics

// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

// Package reader parses the space-separated, line-oriented workload trace
// format described in spec.md §6 (a dialect of the Standard Workload
// Format) into raw per-job attribute maps the Job Factory can consume. It
// knows nothing about jobs, nodes, or resources beyond the field names it
// assigns — validation and casting are the factory's job.
package reader

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

// fieldCount is the number of space-separated fields on every trace data
// line, per spec.md §6.
const fieldCount = 18

// field indices, 0-based, matching spec.md §6's fixed field order.
const (
	fieldJobNumber = iota
	fieldSubmitTime
	fieldWaitTime
	fieldDuration
	fieldAllocatedProcessors
	fieldAvgCPUTime
	fieldUsedMemory
	fieldRequestedProcessors
	fieldRequestedTime
	fieldRequestedMemory
	fieldStatus
	fieldUserID
	fieldGroupID
	fieldExecutableNumber
	fieldQueueNumber
	fieldPartitionNumber
	fieldPrecedingJobNumber
	fieldThinkTimePrejob
)

// DefaultMapping is spec.md §6's default raw-field-name -> canonical-name
// mapping, consumed by internal/factory.WithMapper.
var DefaultMapping = map[string]string{
	"job_number":                  "id",
	"submit_time":                 "queued_time",
	"duration":                    "duration",
	"requested_time":              "expected_duration",
	"requested_number_processors": "core",
	"requested_memory":            "mem",
}

// rawFieldNames is the field name assigned to each position, in order;
// used to build the per-line attribute map before renaming is applied.
var rawFieldNames = [fieldCount]string{
	"job_number", "submit_time", "wait_time", "duration",
	"allocated_processors", "avg_cpu_time", "used_memory",
	"requested_number_processors", "requested_time", "requested_memory",
	"status", "user_id", "group_id", "executable_number",
	"queue_number", "partition_number", "preceding_job_number",
	"think_time_prejob",
}

// Reader parses a trace file into raw attribute maps, sorted by
// submit_time ascending (stable on ties, spec.md §6), and exposes them in
// pull-sized batches so the driver never has to hold the whole file's
// records at once downstream of the sort.
type Reader struct {
	records []map[string]any
	pos     int
}

// Open reads and parses the entire trace file at path. The file is read
// fully upfront because the sort-by-submit-time contract is global: a
// streaming reader could not emit records in submit_time order without
// first observing every line.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening workload trace: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads and parses a trace from r, same contract as Open.
func Parse(r io.Reader) (*Reader, error) {
	var records []map[string]any

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}
		rec, skip, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if skip {
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading workload trace: %w", err)
	}

	// Stable sort preserves original order on submit_time ties, per
	// spec.md §6.
	sort.SliceStable(records, func(i, j int) bool {
		return int64Field(records[i], "submit_time") < int64Field(records[j], "submit_time")
	})

	return &Reader{records: records}, nil
}

func parseLine(line string) (map[string]any, bool, error) {
	fields := strings.Fields(line)
	if len(fields) != fieldCount {
		return nil, false, fmt.Errorf("expected %d fields, got %d", fieldCount, len(fields))
	}

	values := make([]float64, fieldCount)
	for i, raw := range fields {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, false, fmt.Errorf("field %d (%s): %w", i, rawFieldNames[i], err)
		}
		values[i] = v
	}

	requestedProcs := values[fieldRequestedProcessors]
	allocatedProcs := values[fieldAllocatedProcessors]
	requestedMem := values[fieldRequestedMemory]
	usedMem := values[fieldUsedMemory]
	if requestedProcs == -1 && allocatedProcs == -1 {
		return nil, true, nil
	}
	if requestedMem == -1 && usedMem == -1 {
		return nil, true, nil
	}

	rec := make(map[string]any, fieldCount)
	for i, name := range rawFieldNames {
		rec[name] = int64(values[i])
	}
	// avg_cpu_time is the one field spec.md allows as non-integer
	// (a "float field"); keep its fractional part rather than the
	// truncated int64 every other field uses.
	rec["avg_cpu_time"] = values[fieldAvgCPUTime]

	return rec, false, nil
}

func int64Field(rec map[string]any, name string) int64 {
	v, _ := rec[name].(int64)
	return v
}

// Len reports the total number of admitted (non-skipped) records.
func (r *Reader) Len() int {
	return len(r.records)
}

// HasMore reports whether NextBatch would return any records.
func (r *Reader) HasMore() bool {
	return r.pos < len(r.records)
}

// NextBatch returns up to n raw attribute maps, advancing the read
// cursor, in submit_time order. It returns fewer than n (or none) once
// the trace is exhausted.
func (r *Reader) NextBatch(n int) []map[string]any {
	if r.pos >= len(r.records) {
		return nil
	}
	end := r.pos + n
	if end > len(r.records) {
		end = len(r.records)
	}
	batch := r.records[r.pos:end]
	r.pos = end
	return batch
}

// Package lowmem implements the low-memory detector: sensors whose threshold
// checks run on the allocation path but whose alert delivery is deferred to
// the maintenance worker via the WorkSource capability.
//
// The heap sensor trips on managed-heap usage against the configured limit;
// the host sensor trips when host available memory falls below a floor. The
// process ceiling is resolved from the cgroup limit when present, otherwise
// from total host memory.
package lowmem

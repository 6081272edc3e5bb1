// Package safepoint implements the thread inventory and global-pause
// mechanism the maintenance worker cooperates with.
//
// Threads register into a bounded inventory and interact with pauses two
// ways: long blocking operations are wrapped in a BlockedRegion, which marks
// the thread quiescent for the duration, and compute loops call Poll at
// safepoints. StopTheWorld returns once every registered thread is quiescent;
// a thread leaving a blocked region during a pause parks until Resume.
package safepoint

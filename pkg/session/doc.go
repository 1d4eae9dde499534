// Package session guards conversation state with per-thread locking so that
// concurrent turns for the same thread cannot interleave and lose updates.
package session

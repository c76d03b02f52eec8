// Package services implements the driving port interfaces.
// Services contain the ingestion logic (extraction dispatch, dedup,
// bulk scanning and scheduling) and orchestrate calls to driven ports.
//
// Services never touch the network or a database directly; everything
// outside the process is reached through internal/core/ports/driven.
package services

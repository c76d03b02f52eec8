// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - RecordStore: Document and image record persistence
//   - FileScanner: Enumerates candidate files under directory roots
//   - PDFExtractor: Reads the text layer of a PDF
//   - ImageInspector: Reads image dimensions and format
//   - SchedulerStore: Scheduler task state and history
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil or unconfigured - ingestion degrades gracefully:
//
//   - OCRService: Text recognition. Without it, image records carry no text
//     and PDFs without a text layer fail extraction.
//   - PhotoScanner: Photo library enumeration. Without it, only the
//     configured image directories are scanned.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or connector package
package driven

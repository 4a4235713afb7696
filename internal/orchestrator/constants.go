package orchestrator

// Terminal events buffered between the monitor and Run
const EventBufferSize = 4

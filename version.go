package canopy

// Version is the current release of the canopy library.
const Version = "0.3.0"

// Package mail turns notification jobs into email messages and delivers
// them. Addresses, subjects and bodies are pongo2 templates evaluated against
// the submission values; values are sanitised before rendering so a
// submitter cannot inject markup into the notification.
package mail

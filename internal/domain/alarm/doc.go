// Package alarm contains core domain types for the alarm clock.
//
// It defines the alarm configuration (TimeOfDay, WeekdaySet, Config), the
// single armed alarm slot (ArmedAlarm, Payload, Record), the lifecycle State
// machine and ComputeNext, the pure next-occurrence calculator.
package alarm

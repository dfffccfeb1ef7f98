// Package list manages subscription lists and their admission policies.
// Every operation checks that the actor may access the list.
package list

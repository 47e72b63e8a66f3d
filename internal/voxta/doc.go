// Package voxta reads and builds Voxta character packages (.voxpkg): a ZIP
// laid out as Characters/{uuid}/ with a character.json and an Assets/ tree.
//
// The mapping is deliberately lossy in documented ways. Core narrative fields
// map to their Voxta equivalents with template macros compacted ({{ user }}
// becomes {{user}}) and alternate greetings carried as an alternateGreetings
// list; every Voxta-only field rides in the extensions.voxta
// sub-object so a later export can reproduce it. system_prompt,
// post_history_instructions, and extension keys outside voxta are dropped on
// export.
//
// The main avatar is special exported data the editor does not own: it is
// never written under Assets/Avatars, in contrast to CHARX where the main
// icon must be present.
package voxta

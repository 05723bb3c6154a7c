package recap

const systemPrompt = `You are a meeting summarizer. You receive automatically generated meeting transcripts (Teams, Zoom, Meet) and turn them into detailed, well structured recaps in Markdown.`

const userPromptTemplate = `Here is the transcript from the meeting:

<meeting_transcript>
%s
</meeting_transcript>

Read the whole transcript carefully, then write the following sections:

#### 1. Summary
A concise summary of the key points, decisions and takeaways.

#### 2. Meeting Recap
A detailed recap of the main topics discussed and any action items that were assigned.

#### 3. Key Elements
Every key element of the meeting, each with:
- **Topic:** the subject discussed
- **Details:** the discussion, points raised and conclusions reached
- **Decisions:** decisions made on this topic
- **Action Items:** tasks assigned, with owner and deadline where given

#### 4. Considerations
Challenges, risks or other factors raised that should be kept in mind.

#### 5. Next Steps
The concrete next steps agreed, with owner and deadline where given.

#### 6. Conclusion
The main outcomes and takeaways.

Keep it comprehensive but concise and focus on decisions, action items and open considerations.`
